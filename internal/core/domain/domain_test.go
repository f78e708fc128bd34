package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestActorKind_Text(t *testing.T) {
	for _, k := range []ActorKind{KindEndUser, KindStudio, KindMasterAdmin} {
		b, err := json.Marshal(k)
		if err != nil {
			t.Fatalf("marshal %v: %v", k, err)
		}
		var back ActorKind
		if err := json.Unmarshal(b, &back); err != nil || back != k {
			t.Fatalf("round trip %s: got %v, %v", b, back, err)
		}
	}

	if _, err := json.Marshal(ActorKind(0)); err == nil {
		t.Error("zero kind must not marshal")
	}
	if _, err := ParseActorKind("superuser"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if k, err := ParseActorKind(" Studio "); err != nil || k != KindStudio {
		t.Errorf("ParseActorKind should trim and fold case, got %v %v", k, err)
	}
}

func TestKindSet(t *testing.T) {
	s := Kinds(KindStudio, KindMasterAdmin, ActorKind(0), ActorKind(9))

	if !s.Has(KindStudio) || !s.Has(KindMasterAdmin) {
		t.Fatal("missing declared kinds")
	}
	if s.Has(KindEndUser) || s.Has(ActorKind(0)) || s.Has(ActorKind(9)) {
		t.Fatal("set holds undeclared kinds")
	}
	if got := s.String(); got != "studio|master_admin" {
		t.Errorf("unexpected String %q", got)
	}
	if Kinds().Has(KindEndUser) {
		t.Error("empty set must admit nothing")
	}
}

func TestDeletionJob_Add(t *testing.T) {
	var j DeletionJob
	j.Add("a", "", "b", "a")
	j.Add("c", "b")

	want := []string{"a", "b", "c"}
	if fmt.Sprint(j.URLs) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, j.URLs)
	}
	if j.Empty() {
		t.Error("job should not be empty")
	}
	if !(DeletionJob{}).Empty() {
		t.Error("zero job should be empty")
	}
}

func TestRecordURLs(t *testing.T) {
	logo := MediaRef{URL: "logo"}
	if got := (&Studio{Logo: &logo}).URLs(); fmt.Sprint(got) != "[logo]" {
		t.Errorf("studio urls: %v", got)
	}
	if got := (&Client{}).URLs(); len(got) != 0 {
		t.Errorf("client without avatar: %v", got)
	}

	hero := MediaRef{URL: "hero"}
	p := &Project{
		Hero:   &hero,
		Photos: []MediaRef{{URL: "p1"}, {URL: ""}},
		Videos: []MediaRef{{URL: "v1"}},
	}
	if got := p.URLs(); fmt.Sprint(got) != "[hero p1 v1]" {
		t.Errorf("project urls: %v", got)
	}

	sec := &Section{Media: []MediaRef{{URL: "m1"}, {URL: "m2"}}}
	if got := sec.URLs(); fmt.Sprint(got) != "[m1 m2]" {
		t.Errorf("section urls: %v", got)
	}
}

func TestIsAuthFailure(t *testing.T) {
	for _, err := range []error{ErrUnauthenticated, ErrForbidden, ErrMalformedToken, fmt.Errorf("wrap: %w", ErrExpiredToken)} {
		if !IsAuthFailure(err) {
			t.Errorf("%v should be an auth failure", err)
		}
	}
	for _, err := range []error{ErrInvalidCredentials, ErrNotFound, errors.New("other")} {
		if IsAuthFailure(err) {
			t.Errorf("%v should not be an auth failure", err)
		}
	}
}
