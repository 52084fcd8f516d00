package functions

import (
	"crypto/sha256"
	"encoding/hex"

	"brisk/internal/object"
	"brisk/internal/runtime"

	"golang.org/x/crypto/blake2b"
)

func hashFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("hash::sha256", 1, digest(func(b []byte) []byte {
			sum := sha256.Sum256(b)
			return sum[:]
		})),
		embedded("hash::blake2b", 1, digest(func(b []byte) []byte {
			sum := blake2b.Sum256(b)
			return sum[:]
		})),
	}
}

// digest hashes the text form of its argument and returns it hex encoded.
func digest(sum func([]byte) []byte) runtime.EmbeddedFn {
	return func(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
		s, err := text(args[0])
		if err != nil {
			return nil, err
		}
		return object.Str(hex.EncodeToString(sum([]byte(s)))), nil
	}
}
