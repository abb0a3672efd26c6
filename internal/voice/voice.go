package voice

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/podaskai/podask/internal/podcast"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ElevenLabs voice ids, split into disjoint role/gender pools so the host
// and expert never share a voice.
var pools = map[string][]string{
	"female_hosts": {
		"EST9Ui6982FZPSi7gCHi",
		"uYXf8XasLslADfZ2MB4u",
		"kdmDKE6EkgrWrrykO9Qt",
		"yM93hbw8Qtvdma2wCnJG",
		"aMSt68OGf4xUZAnLpTU8",
	},
	"female_experts": {
		"PoHUWWWMHFrA8z7Q88pu",
		"P7x743VjyZEOihNNygQ9",
		"MClEFoImJXBTgLwdLI5n",
		"aTxZrSrp47xsP6Ot4Kgd",
		"gJx1vCzNCD1EQHT212Ls",
	},
	"male_hosts": {
		"XA2bIQ92TabjGbpO2xRr",
		"DMyrgzQFny3JI1Y1paM5",
		"scOwDtmlUjD3prqpp97I",
		"f5HLTX707KIM4SzJYzSz",
		"1t1EeRixsJrKbiF1zwM6",
	},
	"male_experts": {
		"c6SfcYrb2t09NHXiT80T",
		"kdVjFjOXaqExaDvXZECX",
		"ZauUyVXAz5znrgRuElJ5",
		"RPEIZnKMqlQiZyZd1Dae",
		"EOVAuWqgSZN2Oel78Psj",
	},
}

// All returns the available voices organized by category. Callers get
// their own copy; the pools themselves never change.
func All() map[string][]string {
	out := make(map[string][]string, len(pools))
	for category, ids := range pools {
		out[category] = append([]string(nil), ids...)
	}
	return out
}

// Options control voice selection for a session. An explicit voice id wins
// over a gender; an empty gender means one is picked at random.
type Options struct {
	HostGender    string `json:"host_gender,omitempty"`
	ExpertGender  string `json:"expert_gender,omitempty"`
	HostVoiceID   string `json:"host_voice_id,omitempty"`
	ExpertVoiceID string `json:"expert_voice_id,omitempty"`
}

// Picker selects host/expert voice pairs. The random source is injected so
// tests can pin selection; pass nil for a time-seeded one.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPicker(rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{rng: rng}
}

// Pick selects a voice pair per Options. Each call draws fresh; repeated
// calls may return different pairs.
func (p *Picker) Pick(opts Options) (podcast.Voices, error) {
	host, err := p.pickRole(opts.HostVoiceID, opts.HostGender, "hosts")
	if err != nil {
		return podcast.Voices{}, err
	}
	expert, err := p.pickRole(opts.ExpertVoiceID, opts.ExpertGender, "experts")
	if err != nil {
		return podcast.Voices{}, err
	}
	return podcast.Voices{Host: host, Expert: expert}, nil
}

func (p *Picker) pickRole(override, gender, role string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch gender {
	case GenderMale, GenderFemale:
	case "":
		if p.coinFlip() {
			gender = GenderMale
		} else {
			gender = GenderFemale
		}
	default:
		return "", fmt.Errorf("invalid gender %q", gender)
	}
	pool := pools[gender+"_"+role]
	p.mu.Lock()
	defer p.mu.Unlock()
	return pool[p.rng.Intn(len(pool))], nil
}

func (p *Picker) coinFlip() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(2) == 0
}
