package types

// OperatingMode is Attended when no run id ties this process to a
// controller: OTPs are typed at a prompt and status stays in the local log.
type OperatingMode struct {
	RunID string
}

func Attended() OperatingMode {
	return OperatingMode{}
}

func Unattended(runID string) OperatingMode {
	return OperatingMode{RunID: runID}
}

func (m OperatingMode) IsAttended() bool {
	return m.RunID == ""
}

func (m OperatingMode) String() string {
	if m.IsAttended() {
		return "attended"
	}
	return "unattended(" + m.RunID + ")"
}
