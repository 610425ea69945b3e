package selection

import "testing"

func TestSelectReplaces(t *testing.T) {
	var s Set
	s.Select("a", false)
	s.Select("b", false)
	if id, ok := s.Single(); !ok || id != "b" {
		t.Fatalf("single = %q %v", id, ok)
	}
	s.Select("", false)
	if s.Len() != 0 {
		t.Fatalf("empty id should clear, got %v", s.Current())
	}
}

func TestAdditiveToggles(t *testing.T) {
	var s Set
	s.Select("a", false)
	s.Select("b", true)
	s.Select("c", true)
	if got := s.Current(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("order = %v", got)
	}
	s.Select("b", true)
	if s.Contains("b") || s.Len() != 2 {
		t.Fatalf("toggle off failed: %v", s.Current())
	}
	if _, ok := s.Single(); ok {
		t.Fatal("two selected is not single")
	}
	s.Select("", true)
	if s.Len() != 2 {
		t.Fatal("additive empty id must not change selection")
	}
}

func TestCurrentIsCopy(t *testing.T) {
	var s Set
	s.Select("a", false)
	got := s.Current()
	got[0] = "z"
	if !s.Contains("a") {
		t.Fatal("Current leaked internal slice")
	}
}

func TestPrune(t *testing.T) {
	var s Set
	s.Add("a", "b", "c", "a")
	s.Prune(func(id string) bool { return id != "b" })
	if got := s.Current(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("prune = %v", got)
	}
}
