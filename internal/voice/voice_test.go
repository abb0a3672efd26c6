package voice

import (
	"math/rand"
	"testing"
)

func inPool(pool []string, id string) bool {
	for _, v := range pool {
		if v == id {
			return true
		}
	}
	return false
}

func TestPick_RoleCorrectPools(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(1)))
	for i := 0; i < 50; i++ {
		v, err := p.Pick(Options{})
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if !inPool(pools["male_hosts"], v.Host) && !inPool(pools["female_hosts"], v.Host) {
			t.Fatalf("host %q not from a host pool", v.Host)
		}
		if !inPool(pools["male_experts"], v.Expert) && !inPool(pools["female_experts"], v.Expert) {
			t.Fatalf("expert %q not from an expert pool", v.Expert)
		}
		if v.Host == v.Expert {
			t.Fatalf("host and expert share a voice: %q", v.Host)
		}
	}
}

func TestPick_GenderConstraint(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(2)))
	for i := 0; i < 20; i++ {
		v, err := p.Pick(Options{HostGender: GenderFemale, ExpertGender: GenderMale})
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if !inPool(pools["female_hosts"], v.Host) {
			t.Fatalf("host %q not a female host", v.Host)
		}
		if !inPool(pools["male_experts"], v.Expert) {
			t.Fatalf("expert %q not a male expert", v.Expert)
		}
	}
}

func TestPick_OverridesWinVerbatim(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(3)))
	v, err := p.Pick(Options{HostVoiceID: "custom-host", ExpertGender: GenderFemale})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if v.Host != "custom-host" {
		t.Fatalf("override ignored: %q", v.Host)
	}
	if !inPool(pools["female_experts"], v.Expert) {
		t.Fatalf("expert %q not a female expert", v.Expert)
	}
}

func TestPick_InvalidGender(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(4)))
	if _, err := p.Pick(Options{HostGender: "robot"}); err == nil {
		t.Fatalf("expected error for invalid gender")
	}
}

func TestPick_DeterministicWithSeed(t *testing.T) {
	a := NewPicker(rand.New(rand.NewSource(9)))
	b := NewPicker(rand.New(rand.NewSource(9)))
	for i := 0; i < 10; i++ {
		va, _ := a.Pick(Options{})
		vb, _ := b.Pick(Options{})
		if va != vb {
			t.Fatalf("seeded pickers diverged at %d: %+v vs %+v", i, va, vb)
		}
	}
}

func TestPools_Disjoint(t *testing.T) {
	seen := map[string]string{}
	for name, pool := range pools {
		for _, id := range pool {
			if prev, ok := seen[id]; ok {
				t.Fatalf("voice %q in both %s and %s", id, prev, name)
			}
			seen[id] = name
		}
	}
}

func TestAll_ReturnsACopy(t *testing.T) {
	got := All()
	got["female_hosts"][0] = "tampered"
	got["male_experts"] = nil
	delete(got, "female_experts")

	fresh := All()
	if fresh["female_hosts"][0] == "tampered" {
		t.Fatal("mutating the returned slice reached the shared pools")
	}
	if len(fresh["male_experts"]) != 5 || len(fresh["female_experts"]) != 5 {
		t.Fatalf("mutating the returned map reached the shared pools: %v", fresh)
	}
}
