package casework

// CaseStatus represents the lifecycle status of a case
type CaseStatus string

const (
	CaseStatusNew        CaseStatus = "new"
	CaseStatusTriage     CaseStatus = "triage"
	CaseStatusPooled     CaseStatus = "pooled"
	CaseStatusAssigned   CaseStatus = "assigned"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusOnHold     CaseStatus = "on_hold"
	CaseStatusReferred   CaseStatus = "referred"
	CaseStatusCompleted  CaseStatus = "completed"
	CaseStatusCancelled  CaseStatus = "cancelled"
)

// caseTransitions is the fixed table of permitted next statuses.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusNew:        {CaseStatusTriage, CaseStatusPooled, CaseStatusAssigned, CaseStatusCancelled},
	CaseStatusTriage:     {CaseStatusPooled, CaseStatusAssigned, CaseStatusCancelled},
	CaseStatusPooled:     {CaseStatusAssigned, CaseStatusTriage, CaseStatusCancelled},
	CaseStatusAssigned:   {CaseStatusInProgress, CaseStatusPooled, CaseStatusTriage, CaseStatusCancelled},
	CaseStatusInProgress: {CaseStatusOnHold, CaseStatusReferred, CaseStatusCancelled},
	CaseStatusOnHold:     {CaseStatusInProgress, CaseStatusCancelled},
	CaseStatusReferred:   {CaseStatusCompleted, CaseStatusInProgress, CaseStatusCancelled},
	CaseStatusCompleted:  {},
	CaseStatusCancelled:  {},
}

// pdTransitions are the moves a PD may request on its own case.
var pdTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusAssigned:   {CaseStatusInProgress},
	CaseStatusInProgress: {CaseStatusOnHold, CaseStatusReferred},
	CaseStatusOnHold:     {CaseStatusInProgress},
}

// AllCaseStatuses returns every status in lifecycle order
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusNew,
		CaseStatusTriage,
		CaseStatusPooled,
		CaseStatusAssigned,
		CaseStatusInProgress,
		CaseStatusOnHold,
		CaseStatusReferred,
		CaseStatusCompleted,
		CaseStatusCancelled,
	}
}

// IsValid checks if the status is a valid CaseStatus
func (s CaseStatus) IsValid() bool {
	_, ok := caseTransitions[s]
	return ok
}

// String returns the string representation of CaseStatus
func (s CaseStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s CaseStatus) IsTerminal() bool {
	return s.IsValid() && len(caseTransitions[s]) == 0
}

// IsOpen reports whether the case still needs work
func (s CaseStatus) IsOpen() bool {
	return s.IsValid() && !s.IsTerminal()
}

// CanTransitionTo checks if the status can transition to the target status
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	for _, next := range caseTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the permitted next statuses
func (s CaseStatus) AllowedTransitions() []CaseStatus {
	next := caseTransitions[s]
	out := make([]CaseStatus, len(next))
	copy(out, next)
	return out
}

// PDCanTransitionTo checks whether a PD may request the move itself
func (s CaseStatus) PDCanTransitionTo(target CaseStatus) bool {
	for _, next := range pdTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AssignmentMode records how a PD came to own a case
type AssignmentMode string

const (
	AssignmentModeNone        AssignmentMode = ""
	AssignmentModeDirectCode  AssignmentMode = "direct_code"
	AssignmentModePoolClaim   AssignmentMode = "pool_claim"
	AssignmentModeManualAdmin AssignmentMode = "manual_admin"
)

// IsValid checks if the assignment mode is valid
func (m AssignmentMode) IsValid() bool {
	switch m {
	case AssignmentModeNone, AssignmentModeDirectCode, AssignmentModePoolClaim, AssignmentModeManualAdmin:
		return true
	}
	return false
}

// Urgency is the patient-reported urgency of the case
type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencySoon    Urgency = "soon"
	UrgencyUrgent  Urgency = "urgent"
)

// IsValid checks if the urgency is valid
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyRoutine, UrgencySoon, UrgencyUrgent:
		return true
	}
	return false
}
