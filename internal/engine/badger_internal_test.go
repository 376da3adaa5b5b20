package engine

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	"finedb/internal/common"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
		is    error
	}{
		{"Nil", nil, false, nil},
		{"NotFound", badger.ErrKeyNotFound, false, common.ErrKeyNotFound},
		{"EmptyKey", badger.ErrEmptyKey, false, common.ErrEmptyKey},
		{"Conflict", badger.ErrConflict, false, badger.ErrConflict},
		{"TxnTooBig", badger.ErrTxnTooBig, false, badger.ErrTxnTooBig},
		{"InvalidKey", badger.ErrInvalidKey, false, badger.ErrInvalidKey},
		{"OversizeKey", errors.New("Key with size 65100 exceeded 65000 limit. Key:\n00000000  6b 6b 6b 6b  |kkkk|"), false, common.ErrKeyTooLarge},
		{"OversizeValue", errors.New("Value with size 2048 exceeded 1024 limit. Value:\n00000000  76 76  |vv|"), false, common.ErrValueTooLarge},
		{"IO", errors.New("write vlog: no space left on device"), true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			require.Equal(t, tt.fatal, common.IsFatal(got))
			if tt.is != nil {
				require.ErrorIs(t, got, tt.is)
			}
			if tt.err == nil {
				require.NoError(t, got)
			}
		})
	}
}
