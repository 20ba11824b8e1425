package metrics

import "github.com/prometheus/client_golang/prometheus"

type ImportMetrics struct {
	Registry *prometheus.Registry

	Cycles          *prometheus.CounterVec
	RecordsAccepted prometheus.Counter
	RecordsRejected prometheus.Counter
	FilesConsumed   prometheus.Counter
	FilesFailed     prometheus.Counter
}

func New() *ImportMetrics {
	m := &ImportMetrics{
		Registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_cycles_total",
			Help: "Import cycles by terminal status.",
		}, []string{"status"}),
		RecordsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_records_accepted_total",
			Help: "Records mapped and persisted successfully.",
		}),
		RecordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_records_rejected_total",
			Help: "Records skipped as malformed or unresolvable.",
		}),
		FilesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_files_consumed_total",
			Help: "Source files processed to the Consumed state.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_files_failed_total",
			Help: "Source files marked Failed.",
		}),
	}

	m.Registry.MustRegister(m.Cycles, m.RecordsAccepted, m.RecordsRejected, m.FilesConsumed, m.FilesFailed)
	return m
}
