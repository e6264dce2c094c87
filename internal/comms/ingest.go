package comms

import "errors"

// IngestOptions bound one ingestion pass.
type IngestOptions struct {
	MapW, MapH int
	// Budget reports the compute left this round; nil means unlimited.
	Budget func() int
	// Reserve is the budget the pass must leave untouched.
	Reserve int
}

// Anomaly is a message that was skipped for a protocol reason.
type Anomaly struct {
	Index int
	Raw   uint32
	Err   error
}

// IngestReport summarises one pass.
type IngestReport struct {
	Applied   int
	Unchanged int
	Empty     int
	Asks      int
	Unknown   int
	Corrupt   int
	Truncated bool
	Anomalies []Anomaly
	// Err is the first store failure, if any.
	Err error
}

// Ingest folds broadcasts into the shared table. Unknown tags and
// out-of-map positions are skipped and reported once each. When the
// budget drops under the reserve the pass stops with Truncated set.
func Ingest(t *Table, msgs []uint32, opts IngestOptions) (IngestReport, error) {
	var rep IngestReport
	if !t.Privileged() {
		return rep, ErrNotPrivileged
	}
	for i, raw := range msgs {
		if opts.Budget != nil && opts.Budget() < opts.Reserve {
			rep.Truncated = true
			break
		}
		m, err := Decode(raw, opts.MapW, opts.MapH)
		switch {
		case errors.Is(err, ErrUnknownType):
			rep.Unknown++
			rep.Anomalies = append(rep.Anomalies, Anomaly{Index: i, Raw: raw, Err: err})
			continue
		case errors.Is(err, ErrCorrupt):
			rep.Corrupt++
			rep.Anomalies = append(rep.Anomalies, Anomaly{Index: i, Raw: raw, Err: err})
			continue
		case err != nil:
			rep.Anomalies = append(rep.Anomalies, Anomaly{Index: i, Raw: raw, Err: err})
			continue
		}

		var (
			rec     Record
			changed bool
		)
		switch m.Type {
		case MsgEmpty:
			rep.Empty++
			continue
		case MsgAskLeader:
			rep.Asks++
			continue
		case MsgLeader:
			rec = RecLeader
			changed, err = t.WriteLoc(rec, m.Loc)
		case MsgEnemyLeader:
			rec = RecEnemyLeader
			changed, err = t.WriteLoc(rec, m.Loc)
		case MsgThreat:
			rec = RecThreat
			changed, err = t.WriteThreat(m.Loc, min(m.Aux, SlotMax))
		case MsgResource:
			rec = RecResource
			changed, err = t.WriteLoc(rec, m.Loc)
		case MsgEnemyUnit:
			rec = RecEnemyUnit
			changed, err = t.WriteLoc(rec, m.Loc)
		}
		if err == nil && !changed {
			// Same fact seen again: keep it fresh.
			err = t.Refresh(rec)
			rep.Unchanged++
		} else if err == nil {
			rep.Applied++
		}
		if err != nil && rep.Err == nil {
			rep.Err = err
		}
	}
	return rep, nil
}
