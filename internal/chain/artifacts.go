package chain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/fundingdeploy/internal/common"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

const buildInfoDir = "build-info"

// Artifact is a compiled contract as written by the Hardhat compiler task.
type Artifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	RawABI       json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`

	path string
	abi  abi.ABI
}

// ABI returns the parsed contract interface.
func (a *Artifact) ABI() abi.ABI { return a.abi }

// Code returns the creation bytecode.
func (a *Artifact) Code() []byte { return ethcommon.FromHex(a.Bytecode) }

// FullyQualifiedName is the "source:Contract" form verifiers expect.
func (a *Artifact) FullyQualifiedName() string {
	return a.SourceName + ":" + a.ContractName
}

// BuildInfo is the compiler input and version a contract was built with.
type BuildInfo struct {
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

type debugFile struct {
	BuildInfo string `json:"buildInfo"`
}

// Artifacts reads compiled contracts from a Hardhat artifacts directory.
type Artifacts struct {
	root string
}

func NewArtifacts(root string) *Artifacts {
	return &Artifacts{root: root}
}

// Load finds <name>.json anywhere under the artifacts root. Build info and
// debug files are skipped. The first match in lexical walk order wins.
func (s *Artifacts) Load(name string) (*Artifact, error) {
	want := name + ".json"
	var found string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == want {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan artifacts: %w", err)
	}
	if found == "" {
		return nil, fmt.Errorf("%w: %s in %s", common.ErrArtifactNotFound, name, s.root)
	}

	raw, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", found, err)
	}

	art := &Artifact{path: found}
	if err := json.Unmarshal(raw, art); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", found, err)
	}
	if art.Bytecode == "" || art.Bytecode == "0x" {
		return nil, fmt.Errorf("%w: %s has no bytecode (abstract or interface?)", common.ErrArtifactNotFound, name)
	}

	parsed, err := abi.JSON(bytes.NewReader(art.RawABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi of %s: %w", name, err)
	}
	art.abi = parsed

	return art, nil
}

// BuildInfo follows the artifact's debug file to the build-info record.
func (s *Artifacts) BuildInfo(art *Artifact) (*BuildInfo, error) {
	if art.path == "" {
		return nil, fmt.Errorf("%w: %s was not loaded from disk", common.ErrArtifactNotFound, art.ContractName)
	}

	dbgPath := strings.TrimSuffix(art.path, ".json") + ".dbg.json"
	raw, err := os.ReadFile(dbgPath)
	if err != nil {
		return nil, fmt.Errorf("read debug file: %w", err)
	}

	var dbg debugFile
	if err := json.Unmarshal(raw, &dbg); err != nil {
		return nil, fmt.Errorf("decode debug file: %w", err)
	}
	if dbg.BuildInfo == "" {
		return nil, fmt.Errorf("%w: build info reference missing in %s", common.ErrArtifactNotFound, dbgPath)
	}

	biPath := dbg.BuildInfo
	if !filepath.IsAbs(biPath) {
		biPath = filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(biPath))
	}

	raw, err = os.ReadFile(biPath)
	if err != nil {
		return nil, fmt.Errorf("read build info: %w", err)
	}

	var bi BuildInfo
	if err := json.Unmarshal(raw, &bi); err != nil {
		return nil, fmt.Errorf("decode build info: %w", err)
	}
	return &bi, nil
}
