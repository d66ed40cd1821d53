package wizard

// StepTracking decides which of a step's errors are shown.
type StepTracking struct {
	Touched         map[string]bool `json:"touched"`
	SubmitAttempted bool            `json:"submitAttempted"`
	// ShowErrors is raised by the first failed Continue and never lowered
	// within a session.
	ShowErrors bool `json:"showErrors"`
}

// Tracking holds one StepTracking per validated step.
type Tracking struct {
	PersonalInfo StepTracking `json:"personalInfo"`
	PropertyInfo StepTracking `json:"propertyInfo"`
	PoolTerms    StepTracking `json:"poolTerms"`
}

func NewTracking() Tracking {
	return Tracking{
		PersonalInfo: StepTracking{Touched: map[string]bool{}},
		PropertyInfo: StepTracking{Touched: map[string]bool{}},
		PoolTerms:    StepTracking{Touched: map[string]bool{}},
	}
}

// For returns the step's tracking, or nil for steps that are not validated.
func (t *Tracking) For(step Step) *StepTracking {
	switch step {
	case StepPersonalInfo:
		return &t.PersonalInfo
	case StepPropertyInfo:
		return &t.PropertyInfo
	case StepPoolTerms:
		return &t.PoolTerms
	}
	return nil
}

func (t Tracking) clone() Tracking {
	return Tracking{
		PersonalInfo: t.PersonalInfo.clone(),
		PropertyInfo: t.PropertyInfo.clone(),
		PoolTerms:    t.PoolTerms.clone(),
	}
}

func (st StepTracking) clone() StepTracking {
	c := st
	c.Touched = make(map[string]bool, len(st.Touched))
	for k, v := range st.Touched {
		c.Touched[k] = v
	}
	return c
}

func (st *StepTracking) Touch(fields ...string) {
	if st.Touched == nil {
		st.Touched = map[string]bool{}
	}
	for _, f := range fields {
		st.Touched[f] = true
	}
}

// IsVisible reports whether errors on field may be shown.
func (st *StepTracking) IsVisible(field string) bool {
	return st.Touched[field] || st.SubmitAttempted || st.ShowErrors
}

// Visible filters errs down to what the display policy allows.
func (st *StepTracking) Visible(errs ErrorMap) ErrorMap {
	return errs.Filter(st.IsVisible)
}
