package challenges

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "challenges")
