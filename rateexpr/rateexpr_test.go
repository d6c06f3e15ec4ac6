package rateexpr

import (
	"errors"
	"math"
	"testing"
)

func placesFrom(m map[string]float64) PlaceLookup {
	return func(name string) (float64, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestParseAndEvalArithmetic(t *testing.T) {
	c, err := Compile("2 + 3 * (4 - 1) ** 2")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Eval(&Context{})
	if err != nil {
		t.Fatal(err)
	}
	want := 2 + 3*math.Pow(4-1, 2)
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEvalResolvesPlacesAndTime(t *testing.T) {
	c, err := Compile("glucose + time")
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{Time: 1.5, Places: placesFrom(map[string]float64{"glucose": 10})}
	got, err := c.Eval(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 11.5 {
		t.Errorf("got %v, want 11.5", got)
	}
}

func TestEvalUndefinedNameError(t *testing.T) {
	c, err := Compile("mystery_place")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Eval(&Context{Places: placesFrom(nil)})
	if !errors.Is(err, ErrUndefinedName) {
		t.Fatalf("expected ErrUndefinedName, got %v", err)
	}
}

func TestEvalDivideByZero(t *testing.T) {
	c, err := Compile("1 / 0")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Eval(&Context{})
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
}

func TestMichaelisMenten(t *testing.T) {
	c, err := Compile("michaelis_menten(P1, vmax=10, km=5)")
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{Places: placesFrom(map[string]float64{"P1": 10})}
	got, err := c.Eval(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := 10.0 * 10.0 / (5.0 + 10.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMassAction(t *testing.T) {
	c, err := Compile("mass_action(P1, P2, rate_constant=0.01)")
	if err != nil {
		t.Fatal(err)
	}
	ctx := &Context{Places: placesFrom(map[string]float64{"P1": 100, "P2": 100})}
	got, err := c.Eval(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-100.0) > 1e-9 {
		t.Errorf("got %v, want 100", got)
	}
}

func TestUndefinedFunction(t *testing.T) {
	c, err := Compile("bogus(1, 2)")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Eval(&Context{})
	if !errors.Is(err, ErrUndefinedFunction) {
		t.Fatalf("expected ErrUndefinedFunction, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	src := "michaelis_menten(P1, vmax=10, km=5) + 2 * time"
	c, err := Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	reser := c.String()
	c2, err := Compile(reser)
	if err != nil {
		t.Fatalf("re-parsing serialized form failed: %v", err)
	}
	ctx := &Context{Time: 3, Places: placesFrom(map[string]float64{"P1": 10})}
	v1, err := c.Eval(ctx)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := c2.Eval(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Errorf("round trip changed semantics: %v != %v", v1, v2)
	}
}

func TestWrapComposesTextually(t *testing.T) {
	wrapped := Wrap("michaelis_menten(P1, vmax=10, km=5)", 0.1)
	c, err := Compile(wrapped)
	if err != nil {
		t.Fatalf("wrapped expression failed to parse: %v", err)
	}
	ctx := &Context{Time: 0, Places: placesFrom(map[string]float64{"P1": 10}), Rand: nil}
	if _, err := c.Eval(ctx); err != nil {
		t.Fatalf("wrapped expression failed to evaluate: %v", err)
	}
}

func TestParseErrorUnexpectedTrailingToken(t *testing.T) {
	_, err := Parse("1 + 2)")
	if err == nil {
		t.Fatal("expected parse error on unbalanced parens")
	}
}
