package host

import (
	"crypto/rand"
	"fmt"
	"io"

	"ghostpost/pkg/domain"
)

// Minter draws 128-bit tickets and nonces from a byte source.
type Minter struct {
	source io.Reader
}

// NewMinter uses source, or crypto/rand when source is nil.
func NewMinter(source io.Reader) *Minter {
	if source == nil {
		source = rand.Reader
	}
	return &Minter{source: source}
}

func (m *Minter) draw() (domain.Uint128, error) {
	var buf [16]byte
	if _, err := io.ReadFull(m.source, buf[:]); err != nil {
		return domain.Uint128{}, fmt.Errorf("draw random value: %w", err)
	}
	return domain.Uint128FromLittleEndian(buf), nil
}

func (m *Minter) Ticket() (domain.Ticket, error) {
	u, err := m.draw()
	return domain.TicketFrom(u), err
}

func (m *Minter) Nonce() (domain.Nonce, error) {
	u, err := m.draw()
	return domain.NonceFrom(u), err
}
