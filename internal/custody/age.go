// Package custody seals individual shares for their custodians with age, so a
// share can travel as a file that only its custodian can open.
package custody

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"shard-go/internal/poly"
	"shard-go/internal/shard"
	"shard-go/internal/sss"
)

// maxShareSize bounds how much decrypted data Open will read. A sealed share
// holds a single "(x,y)" line.
const maxShareSize = 64 * 1024

// Sealer encrypts shares to a fixed set of age recipients.
type Sealer struct {
	recipients []age.Recipient
}

var _ shard.ShareSealer = (*Sealer)(nil)

// NewRecipientSealer reads age recipients ("age1..." lines, comments allowed)
// from r.
func NewRecipientSealer(r io.Reader) (*Sealer, error) {
	recipients, err := age.ParseRecipients(r)
	if err != nil {
		return nil, fmt.Errorf("parsing recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found")
	}
	return &Sealer{recipients: recipients}, nil
}

// NewPassphraseSealer seals shares under a passphrase with age's scrypt
// recipient. A workFactor of zero keeps age's default.
func NewPassphraseSealer(passphrase string, workFactor int) (*Sealer, error) {
	r, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if workFactor > 0 {
		r.SetWorkFactor(workFactor)
	}
	return &Sealer{recipients: []age.Recipient{r}}, nil
}

// Seal writes p as an age file to w.
func (s *Sealer) Seal(p poly.Point, w io.Writer) error {
	enc, err := age.Encrypt(w, s.recipients...)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	line := []byte(p.String() + "\n")
	defer clear(line)

	if _, err := enc.Write(line); err != nil {
		return fmt.Errorf("writing share: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing share: %w", err)
	}
	return nil
}

// Opener decrypts sealed shares with a set of age identities.
type Opener struct {
	identities []age.Identity
}

var _ shard.ShareOpener = (*Opener)(nil)

// NewIdentityOpener reads age identities ("AGE-SECRET-KEY-1..." lines) from r.
func NewIdentityOpener(r io.Reader) (*Opener, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found")
	}
	return &Opener{identities: identities}, nil
}

// NewPassphraseOpener opens shares sealed by NewPassphraseSealer.
func NewPassphraseOpener(passphrase string) (*Opener, error) {
	id, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	return &Opener{identities: []age.Identity{id}}, nil
}

// Open decrypts one sealed share and parses the point inside.
func (o *Opener) Open(r io.Reader) (poly.Point, error) {
	dec, err := age.Decrypt(r, o.identities...)
	if err != nil {
		return poly.Point{}, fmt.Errorf("decrypting share: %w", err)
	}

	var buf bytes.Buffer
	defer func() { clear(buf.Bytes()) }()

	n, err := io.Copy(&buf, io.LimitReader(dec, maxShareSize+1))
	if err != nil {
		return poly.Point{}, fmt.Errorf("reading share: %w", err)
	}
	if n > maxShareSize {
		return poly.Point{}, fmt.Errorf("%w: sealed share larger than %d bytes", sss.ErrMalformedFragment, maxShareSize)
	}

	p, err := sss.ParsePoint(buf.String())
	if err != nil {
		return poly.Point{}, err
	}
	return p, nil
}

// GenerateIdentity creates a new X25519 key pair and returns the identity
// (secret) and recipient (public) strings.
func GenerateIdentity() (identity, recipient string, err error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating key pair: %w", err)
	}
	return id.String(), id.Recipient().String(), nil
}
