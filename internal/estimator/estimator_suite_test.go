package estimator

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEstimatorSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Estimator Suite")
}
