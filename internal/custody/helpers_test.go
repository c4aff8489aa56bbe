package custody

import (
	"io"

	"filippo.io/age"
)

func sealRaw(s *Sealer, w io.Writer, payload string) error {
	enc, err := age.Encrypt(w, s.recipients...)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(enc, payload); err != nil {
		return err
	}
	return enc.Close()
}
