package grammar

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// MarshalBinary encodes the grammar with REZI. Rule order, production order,
// and the origin of every nonterminal are all kept.
func (g Grammar) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncString(g.start)...)
	data = append(data, rezi.EncInt(len(g.rules))...)
	for _, r := range g.rules {
		data = append(data, rezi.EncString(r.NonTerminal)...)
		data = append(data, rezi.EncInt(int(g.Origin(r.NonTerminal)))...)
		data = append(data, rezi.EncInt(len(r.Productions))...)
		for _, p := range r.Productions {
			data = append(data, encProduction(p)...)
		}
	}

	return data, nil
}

// UnmarshalBinary decodes a grammar written by MarshalBinary. The decoded
// grammar is not validated.
func (g *Grammar) UnmarshalBinary(data []byte) error {
	var err error
	var n int

	var decoded Grammar

	decoded.start, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("start symbol: %w", err)
	}
	data = data[n:]

	var ruleCount int
	ruleCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("rule count: %w", err)
	}
	data = data[n:]

	for i := 0; i < ruleCount; i++ {
		var name string
		name, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("rule %d: head: %w", i, err)
		}
		data = data[n:]

		var origin int
		origin, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("rule %d: origin: %w", i, err)
		}
		data = data[n:]

		var prodCount int
		prodCount, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("rule %d: production count: %w", i, err)
		}
		if prodCount < 0 {
			return fmt.Errorf("rule %d: negative production count", i)
		}
		data = data[n:]

		prods := make([]Production, prodCount)
		for j := 0; j < prodCount; j++ {
			prods[j], n, err = decProduction(data)
			if err != nil {
				return fmt.Errorf("rule %d: production %d: %w", i, j, err)
			}
			data = data[n:]
		}

		decoded.setProductions(name, prods)
		decoded.setOrigin(name, Origin(origin))
	}

	*g = decoded
	return nil
}

func encProduction(p Production) []byte {
	var data []byte
	data = append(data, rezi.EncInt(len(p))...)
	for _, sym := range p {
		data = append(data, rezi.EncBool(sym.IsTerminal())...)
		data = append(data, rezi.EncString(sym.Value)...)
	}
	return data
}

func decProduction(data []byte) (Production, int, error) {
	var totalRead int

	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, n, fmt.Errorf("negative symbol count")
	}
	data = data[n:]
	totalRead += n

	p := make(Production, count)
	for i := 0; i < count; i++ {
		var term bool
		term, n, err = rezi.DecBool(data)
		if err != nil {
			return nil, totalRead, err
		}
		data = data[n:]
		totalRead += n

		var value string
		value, n, err = rezi.DecString(data)
		if err != nil {
			return nil, totalRead, err
		}
		data = data[n:]
		totalRead += n

		if term {
			p[i] = Term(value)
		} else {
			p[i] = NT(value)
		}
	}

	return p, totalRead, nil
}
