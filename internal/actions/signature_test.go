package actions

import (
	"testing"

	"warden/internal/checker"
)

func TestSignatureStableAcrossVaryingDetails(t *testing.T) {
	base := checker.Finding{CheckerID: "whitespace", Message: "trailing whitespace on 3 line(s)"}
	variant := checker.Finding{CheckerID: "whitespace", Message: "trailing whitespace on 17 line(s)"}

	if Signature("/src/a.go", base) != Signature("/src/a.go", variant) {
		t.Fatal("counts in the message should not change the signature")
	}
}

func TestSignatureNormalizesQuotedFragments(t *testing.T) {
	a := checker.Finding{CheckerID: "secretscan", Message: `credential "abc123" detected`}
	b := checker.Finding{CheckerID: "secretscan", Message: `credential "zzz999" detected`}

	if Signature("/src/a.go", a) != Signature("/src/a.go", b) {
		t.Fatal("quoted fragments should not change the signature")
	}
}

func TestSignatureDistinguishesPathCheckerAndTemplate(t *testing.T) {
	f := checker.Finding{CheckerID: "todos", Message: "TODO annotation"}

	if Signature("/src/a.go", f) == Signature("/src/b.go", f) {
		t.Error("different paths must produce different signatures")
	}

	other := f
	other.CheckerID = "secretscan"
	if Signature("/src/a.go", f) == Signature("/src/a.go", other) {
		t.Error("different checkers must produce different signatures")
	}

	reworded := f
	reworded.Message = "FIXME annotation"
	if Signature("/src/a.go", f) == Signature("/src/a.go", reworded) {
		t.Error("materially different messages must produce different signatures")
	}
}
