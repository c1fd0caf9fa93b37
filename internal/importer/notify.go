package importer

import (
	"go.uber.org/zap"
)

// Notifier receives user-facing import messages.
type Notifier interface {
	Notify(msg string)
}

// ZapNotifier writes notifications to a zap logger.
type ZapNotifier struct {
	log *zap.Logger
}

// NewZapNotifier returns a Notifier backed by log, or by the global
// logger when log is nil.
func NewZapNotifier(log *zap.Logger) *ZapNotifier {
	if log == nil {
		log = zap.L()
	}
	return &ZapNotifier{log: log.Named("import")}
}

func (n *ZapNotifier) Notify(msg string) {
	n.log.Info(msg)
}

// Collector keeps notifications in memory, e.g. to return them over HTTP.
type Collector struct {
	Messages []string
}

func (c *Collector) Notify(msg string) {
	c.Messages = append(c.Messages, msg)
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(msg string) {
	for _, n := range m {
		n.Notify(msg)
	}
}

// Tee fans notifications out to every given notifier.
func Tee(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}
