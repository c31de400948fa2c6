package errs

import (
	"errors"
	"fmt"
	"testing"
)

var errSentinel = errors.New("sentinel")

func TestWithKindPreservesChain(t *testing.T) {
	err := Wrap(Validation(errSentinel), "submit verification")

	if !errors.Is(err, errSentinel) {
		t.Fatalf("errors.Is() = false, want true")
	}
	if KindOf(err) != KindValidation {
		t.Fatalf("KindOf() = %s, want validation", KindOf(err))
	}
}

func TestWithKindKeepsFirstClassification(t *testing.T) {
	err := Persistence(NotFound(errSentinel))
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf() = %s, want not_found", KindOf(err))
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if got := KindOf(fmt.Errorf("plain: %w", errSentinel)); got != KindUnknown {
		t.Fatalf("KindOf() = %s, want unknown", got)
	}
	if WithKind(KindValidation, nil) != nil {
		t.Fatalf("WithKind(nil) should stay nil")
	}
}

func TestErrorChainStrings(t *testing.T) {
	chain := ErrorChainStrings(Wrapf(errSentinel, "load %s", "cars"))
	if len(chain) != 2 || chain[0] != "load cars: sentinel" || chain[1] != "sentinel" {
		t.Fatalf("ErrorChainStrings() = %#v", chain)
	}
}
