package cell

import (
	"errors"
	"fmt"
	"io"

	bin "github.com/saylorsolutions/binmap"
	"golang.org/x/crypto/scrypt"
)

const (
	DefaultLargeIterations       uint64 = 1 << 20
	DefaultInteractiveIterations uint64 = 1 << 15
	MaxIterations                       = DefaultLargeIterations
	DefaultRelBlockSize          uint8  = 8
	MaxRelBlockSize              uint8  = 16
	DefaultCpuCost               uint8  = 1
	MaxCpuCost                   uint8  = 16
	AES256KeySize                uint8  = 256 / 8
	AES128KeySize                uint8  = 128 / 8

	// headerLen is the encoded size of KeyGenerator.mapper.
	headerLen = 8 + 1 + 1 + 1

	// maxWorkFactor bounds 128*r*N*p at what SetLongDelayIterations costs with the default block size and CPU cost.
	maxWorkFactor = 128 * uint64(DefaultRelBlockSize) * DefaultLargeIterations * uint64(DefaultCpuCost)
)

var (
	ErrEmptyKey      = errors.New("cannot use an empty key")
	ErrInvalidHeader = errors.New("invalid key derivation header")
	ErrWorkFactor    = errors.New("key derivation cost exceeds the maximum")
)

// KeyGenerator holds the scrypt parameters used to stretch a caller-supplied key into an AES key.
type KeyGenerator struct {
	iterations        uint64
	relativeBlockSize uint8
	cpuCost           uint8
	aesKeySize        uint8
}

func (g *KeyGenerator) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&g.iterations),
		bin.Byte(&g.relativeBlockSize),
		bin.Byte(&g.cpuCost),
		bin.Byte(&g.aesKeySize),
	)
}

type GeneratorOpt = func(*KeyGenerator) error

func SetAES256KeySize() GeneratorOpt {
	return func(gen *KeyGenerator) error {
		gen.aesKeySize = AES256KeySize
		return nil
	}
}

func SetAES128KeySize() GeneratorOpt {
	return func(gen *KeyGenerator) error {
		gen.aesKeySize = AES128KeySize
		return nil
	}
}

// SetLongDelayIterations sets a higher iteration count, at the cost of about a second and 1GB of memory per derivation.
func SetLongDelayIterations() GeneratorOpt {
	return func(gen *KeyGenerator) error {
		gen.iterations = DefaultLargeIterations
		return nil
	}
}

// SetShortDelayIterations sets the interactive iteration count, which is the default.
func SetShortDelayIterations() GeneratorOpt {
	return func(gen *KeyGenerator) error {
		gen.iterations = DefaultInteractiveIterations
		return nil
	}
}

// SetIterations allows the caller to customize the iteration count.
// Only use this option if you know what you're doing.
func SetIterations(iterations uint64) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if iterations <= 1 {
			return errors.New("iterations cannot be <= 1")
		}
		if iterations&(iterations-1) != 0 {
			return errors.New("iterations must be a power of 2")
		}
		if iterations > MaxIterations {
			return fmt.Errorf("iterations cannot exceed %d", MaxIterations)
		}
		gen.iterations = iterations
		return nil
	}
}

// SetCPUCost sets the parallelism factor for key generation from the default of 1.
// Only use this option if you know what you're doing.
func SetCPUCost(cost uint8) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if cost < DefaultCpuCost || cost > MaxCpuCost {
			return fmt.Errorf("cpu cost must be between %d and %d", DefaultCpuCost, MaxCpuCost)
		}
		gen.cpuCost = cost
		return nil
	}
}

// SetRelativeBlockSize sets the relative block size.
// Only use this option if you know what you're doing.
func SetRelativeBlockSize(size uint8) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if size < DefaultRelBlockSize || size > MaxRelBlockSize {
			return fmt.Errorf("relative block size must be between %d and %d", DefaultRelBlockSize, MaxRelBlockSize)
		}
		gen.relativeBlockSize = size
		return nil
	}
}

// NewKeyGenerator creates a new KeyGenerator using the options provided as zero or more GeneratorOpt.
// By default, the generator generates a key for AES256KeySize using DefaultInteractiveIterations.
func NewKeyGenerator(opts ...GeneratorOpt) (*KeyGenerator, error) {
	gen := &KeyGenerator{
		iterations:        DefaultInteractiveIterations,
		relativeBlockSize: DefaultRelBlockSize,
		cpuCost:           DefaultCpuCost,
		aesKeySize:        AES256KeySize,
	}

	for _, opt := range opts {
		if err := opt(gen); err != nil {
			return nil, err
		}
	}
	if gen.workFactor() > maxWorkFactor {
		return nil, ErrWorkFactor
	}
	return gen, nil
}

// workFactor approximates the memory and time scrypt spends for these settings.
func (g *KeyGenerator) workFactor() uint64 {
	return 128 * uint64(g.relativeBlockSize) * g.iterations * uint64(g.cpuCost)
}

// validate checks parameters read from an untrusted header, so a modified header can't cause excessive work.
func (g *KeyGenerator) validate() error {
	switch {
	case g.iterations <= 1 || g.iterations&(g.iterations-1) != 0:
		return fmt.Errorf("%w: iterations %d is not a power of 2", ErrInvalidHeader, g.iterations)
	case g.iterations > MaxIterations:
		return fmt.Errorf("%w: iterations %d exceeds the maximum", ErrInvalidHeader, g.iterations)
	case g.relativeBlockSize < DefaultRelBlockSize || g.relativeBlockSize > MaxRelBlockSize:
		return fmt.Errorf("%w: relative block size %d out of range", ErrInvalidHeader, g.relativeBlockSize)
	case g.cpuCost < DefaultCpuCost || g.cpuCost > MaxCpuCost:
		return fmt.Errorf("%w: cpu cost %d out of range", ErrInvalidHeader, g.cpuCost)
	case g.aesKeySize != AES128KeySize && g.aesKeySize != AES256KeySize:
		return fmt.Errorf("%w: unsupported AES key size %d", ErrInvalidHeader, g.aesKeySize)
	case g.workFactor() > maxWorkFactor:
		return fmt.Errorf("%w: %v", ErrInvalidHeader, ErrWorkFactor)
	}
	return nil
}

// SaltSize is the length of the salt appended to each payload, which matches the AES key size.
func (g *KeyGenerator) SaltSize() int {
	return int(g.aesKeySize)
}

// GenerateKey will generate an AES key and a fresh random salt from the given key material.
func (g *KeyGenerator) GenerateKey(material []byte, random io.Reader) (key, salt []byte, err error) {
	if len(material) == 0 {
		return nil, nil, ErrEmptyKey
	}
	salt = make([]byte, g.aesKeySize)
	if _, err = io.ReadFull(random, salt); err != nil {
		return nil, nil, err
	}
	key, err = g.DeriveKey(material, salt)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}

// DeriveKey will recover an AES key from the given key material and salt.
// This doesn't ensure that the key material is the *correct* material used to seal a payload.
func (g *KeyGenerator) DeriveKey(material, salt []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, ErrEmptyKey
	}
	return scrypt.Key(material, salt, int(g.iterations), int(g.relativeBlockSize), int(g.cpuCost), int(g.aesKeySize))
}
