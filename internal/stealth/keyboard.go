package stealth

import (
	"context"
	"math/rand"
	"time"
)

// ActionType represents the type of keyboard action
type ActionType int

const (
	ActionTypeKey ActionType = iota
	ActionTypeBackspace
	ActionTypePause
)

// KeyAction is one step of a typing plan
type KeyAction struct {
	Type  ActionType
	Key   string        // Set for ActionTypeKey
	Delay time.Duration // Delay after this action
}

// Keyboard builds typing plans with variable speed and corrected typos
type Keyboard struct {
	rng *rand.Rand
}

// NewKeyboard creates a new Keyboard instance
func NewKeyboard(rng *rand.Rand) *Keyboard {
	return &Keyboard{rng: rng}
}

// Plan returns the actions that type text at a random speed between wpmMin and wpmMax.
// Each typo is immediately followed by a backspace and the intended character, so
// replaying the plan always yields text.
func (k *Keyboard) Plan(ctx context.Context, text string, wpmMin, wpmMax int, typoProb float64) ([]KeyAction, error) {
	if wpmMin < 1 {
		wpmMin = 1
	}
	if wpmMax < wpmMin {
		wpmMax = wpmMin
	}
	if typoProb < 0 {
		typoProb = 0
	}
	if typoProb > 1 {
		typoProb = 1
	}

	// 5 characters per word plus a space
	wpm := wpmMin + k.rng.Intn(wpmMax-wpmMin+1)
	perChar := (60.0 / float64(wpm)) / 6.0

	runes := []rune(text)
	actions := make([]KeyAction, 0, len(runes))
	for i, char := range runes {
		if err := ctx.Err(); err != nil {
			return actions, err
		}

		if typoProb > 0 && i < len(runes)-1 && k.rng.Float64() < typoProb {
			if typo := k.nearbyKey(char); typo != char {
				actions = append(actions,
					KeyAction{Type: ActionTypeKey, Key: string(typo), Delay: k.delay(perChar, char)},
					KeyAction{Type: ActionTypePause, Delay: time.Duration(100+k.rng.Intn(200)) * time.Millisecond},
					KeyAction{Type: ActionTypeBackspace, Delay: k.delay(perChar, '\b')},
				)
			}
		}

		actions = append(actions, KeyAction{Type: ActionTypeKey, Key: string(char), Delay: k.delay(perChar, char)})
	}

	return actions, nil
}

var qwertyNeighbours = map[rune]string{
	'a': "sqwzx", 'b': "vghn", 'c': "xdfv", 'd': "serfcx", 'e': "wrds",
	'f': "drtgvc", 'g': "ftyhbv", 'h': "gyujnb", 'i': "uokj", 'j': "huikmn",
	'k': "jiolm", 'l': "kop", 'm': "njk", 'n': "bhjm", 'o': "iplk",
	'p': "ol", 'q': "wa", 'r': "etfd", 's': "awedxz", 't': "rygf",
	'u': "yijh", 'v': "cfgb", 'w': "qesa", 'x': "zsdc", 'y': "tuhg", 'z': "asx",
}

// nearbyKey picks a neighbouring QWERTY key, preserving case. Characters without
// neighbours are returned unchanged.
func (k *Keyboard) nearbyKey(char rune) rune {
	lower := char
	upper := char >= 'A' && char <= 'Z'
	if upper {
		lower = char + 32
	}

	nearby, ok := qwertyNeighbours[lower]
	if !ok {
		return char
	}
	keys := []rune(nearby)
	typo := keys[k.rng.Intn(len(keys))]
	if upper {
		typo -= 32
	}
	return typo
}

func (k *Keyboard) delay(base float64, char rune) time.Duration {
	d := base * (0.8 + k.rng.Float64()*0.4)

	switch char {
	case ' ', '\n', '\t':
		d *= 1.5 + k.rng.Float64()*0.5
	case '.', ',', '!', '?', '@':
		d *= 1.2 + k.rng.Float64()*0.3
	case '\b':
		d *= 0.7 + k.rng.Float64()*0.2
	}

	d += k.rng.Float64() * 0.01
	return time.Duration(d * float64(time.Second))
}
