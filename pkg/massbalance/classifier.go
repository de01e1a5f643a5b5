package massbalance

import "math"

// Classifier maps a MetricSet onto a diagnostic zone.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{t: t}, nil
}

// Thresholds returns the classifier's zone boundaries.
func (c *Classifier) Thresholds() Thresholds { return c.t }

// Classify assigns exactly one zone to m. Boundary values resolve to the
// less severe zone.
func (c *Classifier) Classify(m MetricSet) Zone {
	if m.ZMB == nil || math.IsNaN(*m.ZMB) {
		return ZoneUndetermined
	}
	z := *m.ZMB

	switch {
	case z <= c.t.NormalZMax:
		return ZoneNormal
	case z <= c.t.ModerateZMax:
		return ZoneAnalyticalVariability
	case m.AMB < 0:
		if m.RecoveryRatio == nil || *m.RecoveryRatio <= c.t.MissingDegradantRatio {
			return ZoneMissingDegradants
		}
		return ZonePhysicalLoss
	default:
		// z > ModerateZMax >= 0 means AMBD > 0, so AMB is positive here.
		return ZoneOverestimation
	}
}

// Significance reads the signed Z_MB against the significance bound.
func (c *Classifier) Significance(m MetricSet) Significance {
	z, ok := m.SignedZMB()
	switch {
	case !ok || math.IsNaN(z):
		return SignificanceUndetermined
	case math.Abs(z) <= c.t.SignificanceZ:
		return SignificanceWithin
	case z < 0:
		return SignificanceMassLoss
	default:
		return SignificanceOverRecovery
	}
}
