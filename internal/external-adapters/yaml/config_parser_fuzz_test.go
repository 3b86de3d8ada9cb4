package yaml

import (
	"testing"
)

// FuzzConfigParser tests the config parser against random/malformed inputs.
// Any config it accepts must also pass validation.
//
// Run with: go test -fuzz=FuzzConfigParser -fuzztime=30s
func FuzzConfigParser(f *testing.F) {
	f.Add([]byte(`rate_limit: 10
burst: 1
poll_interval: 100ms
algorithms: [SHA-1, SHA-512]
`))
	f.Add([]byte(`logging:
  level: warn
signature:
  keyring: keys.asc
`))

	f.Add([]byte(``))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`rate_limit: -1`))
	f.Add([]byte(`poll_interval: 1h1h1h`))
	f.Add([]byte(`burst: 99999999999999999999`))

	parser := NewConfigParser()

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := parser.Parse(data)
		if err != nil {
			return
		}
		if verr := cfg.Validate(); verr != nil {
			t.Errorf("Parse accepted an invalid config: %v", verr)
		}
	})
}
