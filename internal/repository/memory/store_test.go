package memory

import (
	"testing"

	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) *repository.Store { return NewStore() })
}
