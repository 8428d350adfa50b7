package transactions

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "transactions")
