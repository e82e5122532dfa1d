package aggregator

// MinDailySamples is the minimum number of valid records a calendar day
// needs before a DailyAggregate is produced for it. One hour of 5-minute
// telemetry; guards against spurious single-reading days.
const MinDailySamples = 12

// IngestResult reports what happened while loading one plant's CSV.
type IngestResult struct {
	ParsedRows  int
	DroppedRows int
}

// Operational CSV column names, in required order of presence (column order
// in the file itself is free, the header is mapped by name).
var operationalColumns = []string{
	"Timestamp", "PV(W)", "Battery(W)", "SOC(%)", "Load(W)",
	"MPP1(A)", "MPP2(A)", "MPP1(V)", "MPP2(V)",
}
