package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"gorm.io/gorm"
)

const (
	RenderOutcomeSuccess         = "success"
	RenderOutcomeFileNotFound    = "file_not_found"
	RenderOutcomeConversion      = "conversion_failure"
	RenderOutcomeTimeout         = "conversion_timeout"
	RenderOutcomeDataIncomplete  = "data_incomplete"
	RenderOutcomeUnknown         = "unknown"
	WorkflowReasonInvalidStatus  = "invalid_transition"
	WorkflowReasonPrecondition   = "precondition_not_met"
	WorkflowReasonLockTimeout    = "db_lock_timeout"
	WorkflowReasonSerialization  = "serialization_failure"
	WorkflowReasonUniqueConflict = "unique_violation"
	WorkflowReasonDeadline       = "deadline_exceeded"
	WorkflowReasonUnknown        = "unknown"
)

// WorkflowMetrics tracks hiring workflow transitions and letter rendering.
type WorkflowMetrics struct {
	transitions       *prometheus.CounterVec
	rejections        *prometheus.CounterVec
	renders           *prometheus.CounterVec
	conversionSeconds *prometheus.HistogramVec
	expirySweeps      prometheus.Counter
	expiredOffers     prometheus.Counter
}

var (
	workflowMetricsOnce sync.Once
	workflowMetrics     *WorkflowMetrics
)

// Workflow returns the singleton workflow metrics registry.
func Workflow() *WorkflowMetrics {
	return WorkflowWithConfig(Config{})
}

// WorkflowWithConfig returns the singleton workflow metrics registry using config labels.
func WorkflowWithConfig(cfg Config) *WorkflowMetrics {
	workflowMetricsOnce.Do(func() {
		workflowMetrics = newWorkflowMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return workflowMetrics
}

func newWorkflowMetrics(registerer prometheus.Registerer, cfg Config) *WorkflowMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "peoplehub"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "peoplehub_workflow_transitions_total",
		Help:        "Committed status transitions by entity.",
		ConstLabels: constLabels,
	}, []string{"entity", "from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "peoplehub_workflow_rejections_total",
		Help:        "Refused workflow operations by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"entity", "reason"})
	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "peoplehub_letter_renders_total",
		Help:        "Letter render attempts by type and outcome.",
		ConstLabels: constLabels,
	}, []string{"letter_type", "outcome"})
	conversionSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "peoplehub_letter_conversion_seconds",
		Help:        "Document to PDF conversion latency.",
		Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		ConstLabels: constLabels,
	}, []string{"converter"})
	expirySweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "peoplehub_offer_expiry_sweeps_total",
		Help:        "Offer expiry sweep runs.",
		ConstLabels: constLabels,
	})
	expiredOffers := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "peoplehub_offers_expired_total",
		Help:        "Offers moved to EXPIRED by the sweep.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		transitions,
		rejections,
		renders,
		conversionSeconds,
		expirySweeps,
		expiredOffers,
	)

	return &WorkflowMetrics{
		transitions:       transitions,
		rejections:        rejections,
		renders:           renders,
		conversionSeconds: conversionSeconds,
		expirySweeps:      expirySweeps,
		expiredOffers:     expiredOffers,
	}
}

func (m *WorkflowMetrics) IncTransition(entity, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

// IncRejection records a refused operation classified by ClassifyWorkflowReason.
func (m *WorkflowMetrics) IncRejection(entity string, err error) {
	if m == nil || m.rejections == nil || err == nil {
		return
	}
	m.rejections.WithLabelValues(entity, ClassifyWorkflowReason(err)).Inc()
}

func (m *WorkflowMetrics) IncRender(letterType string, err error) {
	if m == nil || m.renders == nil {
		return
	}
	m.renders.WithLabelValues(letterType, ClassifyRenderOutcome(err)).Inc()
}

func (m *WorkflowMetrics) ObserveConversion(converter string, duration time.Duration) {
	if m == nil || m.conversionSeconds == nil {
		return
	}
	m.conversionSeconds.WithLabelValues(converter).Observe(duration.Seconds())
}

func (m *WorkflowMetrics) IncExpirySweep(expired int) {
	if m == nil {
		return
	}
	m.expirySweeps.Inc()
	if expired > 0 {
		m.expiredOffers.Add(float64(expired))
	}
}

// ClassifyRenderOutcome maps a render error to a bounded outcome label.
func ClassifyRenderOutcome(err error) string {
	if err == nil {
		return RenderOutcomeSuccess
	}
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindFileNotFound:
		return RenderOutcomeFileNotFound
	case apperr.KindConversionFailure:
		return RenderOutcomeConversion
	case apperr.KindConversionTimeout:
		return RenderOutcomeTimeout
	case apperr.KindDataIncomplete:
		return RenderOutcomeDataIncomplete
	default:
		return RenderOutcomeUnknown
	}
}

// ClassifyWorkflowReason maps a workflow error to a bounded reason label.
func ClassifyWorkflowReason(err error) string {
	if err == nil {
		return WorkflowReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WorkflowReasonDeadline
	}
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindInvalidTransition:
		return WorkflowReasonInvalidStatus
	case apperr.KindPreconditionNotMet:
		return WorkflowReasonPrecondition
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return WorkflowReasonUniqueConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return WorkflowReasonLockTimeout
		case "40001", "40P01":
			return WorkflowReasonSerialization
		case "23505":
			return WorkflowReasonUniqueConflict
		}
	}
	return WorkflowReasonUnknown
}
