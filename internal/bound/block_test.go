package bound

import "testing"

func TestParseScopeKinds(t *testing.T) {
	tests := []struct {
		in      []string
		want    ScopeKind
		wantErr bool
	}{
		{nil, ScopeBlock, false},
		{[]string{"catch"}, ScopeBlock | ScopeCatch, false},
		{[]string{"Switch", " sequence "}, ScopeBlock | ScopeSwitch | ScopeSequence, false},
		{[]string{"all"}, DefaultScopeKinds, false},
		{[]string{"loop"}, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseScopeKinds(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseScopeKinds(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseScopeKinds(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
