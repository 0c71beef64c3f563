// Package logging wraps charmbracelet/log behind package-level helpers so
// the cmd tools share one configured logger. The kmd package itself never
// logs; surfacing import outcomes is the caller's job.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

func logger() *log.Logger {
	once.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "kmd",
		})
		if lvl, err := log.ParseLevel(os.Getenv("KMD_LOG_LEVEL")); err == nil {
			l.SetLevel(lvl)
		}
		singleton = l
	})
	return singleton
}

func Debugf(msg string, args ...interface{}) { logger().Debugf(msg, args...) }
func Infof(msg string, args ...interface{})  { logger().Infof(msg, args...) }
func Warnf(msg string, args ...interface{})  { logger().Warnf(msg, args...) }
func Errorf(msg string, args ...interface{}) { logger().Errorf(msg, args...) }
func Fatalf(msg string, args ...interface{}) { logger().Fatalf(msg, args...) }
