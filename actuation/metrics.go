package actuation

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports controller outputs and corrections to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	steer          prometheus.Gauge
	throttle       prometheus.Gauge
	brake          prometheus.Gauge
	cruiseBaseline prometheus.Gauge
	currentSpeed   prometheus.Gauge

	governorBrakes    prometheus.Counter
	cruiseCorrections *prometheus.CounterVec
	framesSent        prometheus.Counter
	invalidSpeeds     prometheus.Counter
}

// NewMetrics creates the actuation collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "actuation",
			Subsystem: "output",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		steer:          gauge("steer", "Applied steer value (-1..1)."),
		throttle:       gauge("throttle", "Applied throttle value (0..1)."),
		brake:          gauge("brake", "Applied brake value (0..1)."),
		cruiseBaseline: gauge("cruise_baseline_kph", "Cruise baseline speed, 0 when unset."),
		currentSpeed:   gauge("current_speed_kph", "Last reported vehicle speed."),
		governorBrakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "actuation",
			Subsystem: "brake_governor",
			Name:      "applications_total",
			Help:      "Brake applications issued by the brake governor.",
		}),
		cruiseCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actuation",
			Subsystem: "cruise",
			Name:      "corrections_total",
			Help:      "Cruise corrections by kind.",
		}, []string{"kind"}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "actuation",
			Subsystem: "can",
			Name:      "frames_sent_total",
			Help:      "Actuator command frames transmitted.",
		}),
		invalidSpeeds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "actuation",
			Subsystem: "feedback",
			Name:      "invalid_speed_total",
			Help:      "Speed reports rejected as negative.",
		}),
	}
	reg.MustRegister(
		m.steer, m.throttle, m.brake, m.cruiseBaseline, m.currentSpeed,
		m.governorBrakes, m.cruiseCorrections, m.framesSent, m.invalidSpeeds,
	)
	return m
}

// ObserveState records the outputs and speeds of a state snapshot.
func (m *Metrics) ObserveState(s ActuatorState) {
	if m == nil {
		return
	}
	m.steer.Set(s.Steer)
	m.throttle.Set(s.Throttle)
	m.brake.Set(s.BrakeOutput)
	m.cruiseBaseline.Set(s.CruiseBaseline)
	m.currentSpeed.Set(s.CurrentSpeed)
}

// FrameSent counts one transmitted actuator frame.
func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

// InvalidSpeed counts one rejected speed report.
func (m *Metrics) InvalidSpeed() {
	if m == nil {
		return
	}
	m.invalidSpeeds.Inc()
}

func (m *Metrics) governorBrake() {
	if m == nil {
		return
	}
	m.governorBrakes.Inc()
}

func (m *Metrics) cruiseCorrection(kind CruiseCorrection) {
	if m == nil || kind == CruiseNone {
		return
	}
	m.cruiseCorrections.WithLabelValues(kind.String()).Inc()
}
