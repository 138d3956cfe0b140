package zkip

import (
	"github.com/sirupsen/logrus"

	"github.com/privacyproofs/zkip/geocache"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.StandardLogger()
	geocache.Logger = Logger
}
