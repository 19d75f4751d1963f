package chat

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/elee1766/nl2sql/src/aisdk"
)

// WriteHistory prints every message with its role, content and metadata.
func WriteHistory(w io.Writer, messages []*aisdk.Message) error {
	for _, m := range messages {
		metadata, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		if _, err := fmt.Fprintf(w,
			"> ---------- %s ----------\n> MESSAGE  > %s\n> METADATA > %s\n> ------------------------------------\n",
			m.Role, m.Content, metadata,
		); err != nil {
			return err
		}
	}
	return nil
}
