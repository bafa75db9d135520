package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLog_DisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetEnabled(false)
	SetOutput(&buf)

	Log("hidden %d", 1)
	LogIf(true, "hidden")
	LogEnterExit("hidden")()
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestLog_Enabled(t *testing.T) {
	var buf bytes.Buffer
	SetEnabled(true)
	defer SetEnabled(false)
	SetOutput(&buf)

	Log("pin: select %s", "County 03")
	LogIf(false, "skipped")
	LogEnterExit("export")()

	out := buf.String()
	for _, want := range []string{prefix + "pin: select County 03", "-> export", "<- export ("} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("LogIf(false) wrote: %q", out)
	}
}
