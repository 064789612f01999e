package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the identity service.
type Metrics struct {
	AccountsCreated prometheus.Counter
	AccountsUpdated prometheus.Counter
	AccountsDeleted prometheus.Counter
	LoginSuccesses  prometheus.Counter
	LoginFailures   prometheus.Counter
	LockoutsActive  prometheus.Counter
	AuditMirrorDrop prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_accounts_created_total",
			Help: "Total number of accounts created.",
		}),
		AccountsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_accounts_updated_total",
			Help: "Total number of account updates applied.",
		}),
		AccountsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_accounts_deleted_total",
			Help: "Total number of accounts deleted.",
		}),
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_logins_succeeded_total",
			Help: "Total number of successful credential validations.",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_logins_failed_total",
			Help: "Total number of failed credential validations.",
		}),
		LockoutsActive: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_login_lockouts_total",
			Help: "Total number of login attempts rejected by the lockout throttle.",
		}),
		AuditMirrorDrop: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_audit_mirror_dropped_total",
			Help: "Total number of audit entries dropped by the Kafka mirror buffer.",
		}),
	}
}
