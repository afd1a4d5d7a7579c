package worker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/tools"
)

const minAlertInterval = 30 * time.Minute

// Alerter notify operators
type Alerter interface {
	Alert(subject, content string) error
}

// EmailAlerter send audit emails, at most one per interval
type EmailAlerter struct {
	to   []string
	cc   []string
	send func(to, cc []string, subject, content string) error

	clock       clockwork.Clock
	minInterval time.Duration

	mu       sync.Mutex
	prevSend time.Time
}

// NewEmailAlerter new email alerter
func NewEmailAlerter(cfg *params.EmailConfig, clock clockwork.Clock) *EmailAlerter {
	mailer := tools.NewMailer(cfg.Server, cfg.Port, cfg.From, cfg.FromName, cfg.Password)
	return &EmailAlerter{
		to:          cfg.To,
		cc:          cfg.Cc,
		send:        mailer.SendEmail,
		clock:       orRealClock(clock),
		minInterval: minAlertInterval,
	}
}

// Alert impl Alerter, too frequent alerts are dropped
func (a *EmailAlerter) Alert(subject, content string) error {
	a.mu.Lock()
	now := a.clock.Now()
	if !a.prevSend.IsZero() && now.Sub(a.prevSend) < a.minInterval {
		a.mu.Unlock()
		log.Debug("[alert] drop too frequent email", "subject", subject)
		return nil
	}
	a.prevSend = now
	a.mu.Unlock()

	err := a.send(a.to, a.cc, subject, content)
	if err != nil {
		log.Error("[alert] send email failed", "subject", subject, "err", err)
	} else {
		log.Info("[alert] send email success", "subject", subject)
	}
	return err
}

func alertContent(summary batchSummary) string {
	var sb strings.Builder
	fields := summary.fields()
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&sb, "%v: %v\n", fields[i], fields[i+1])
	}
	if errs := summary.rowErrors(); len(errs) > 0 {
		sb.WriteString("\nerrors:\n")
		sb.WriteString(errs.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func alertSubject(identifier, job string) string {
	return fmt.Sprintf("[%v] settlement %v job needs attention", identifier, job)
}
