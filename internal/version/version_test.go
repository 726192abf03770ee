package version

import "testing"

func TestSummaryUsesCurrentValues(t *testing.T) {
	oldVersion := Version
	oldDate := BuildDate
	t.Cleanup(func() {
		Version = oldVersion
		BuildDate = oldDate
	})

	Version = "26.8.0"
	BuildDate = "2026-08-23T10:11:12Z"

	summary := Summary()

	if summary != "26.8.0 (built 2026-08-23T10:11:12Z)" {
		t.Fatalf("unexpected summary: %s", summary)
	}
}
