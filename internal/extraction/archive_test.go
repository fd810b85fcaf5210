package extraction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-3b7d-4e55-9a3f-0c2b8d1e7f40")

	assert.Equal(t, "receipts/u1/6f1c2a9e-3b7d-4e55-9a3f-0c2b8d1e7f40-r.pdf", ObjectName("u1", "r.pdf", id))
	assert.Equal(t, "receipts/u1/6f1c2a9e-3b7d-4e55-9a3f-0c2b8d1e7f40-r.pdf", ObjectName("u1", "../../tmp/r.pdf", id))
}
