package exporter

import (
	"bytes"
	"testing"
	"time"

	"blockverity/pkg/merkle"
	"blockverity/pkg/meta"
	"blockverity/pkg/verifier"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPrintProof(t *testing.T) {
	leaves := digestsOf(5)
	root, err := merkle.BuildRoot(leaves)
	require.NoError(t, err)
	proof, err := merkle.Prove(leaves, 4)
	require.NoError(t, err)

	var out bytes.Buffer
	PrintProof(proof, leaves[4], root, &out)
	assert.Contains(t, out.String(), "Block:  4 of 5")
	assert.Contains(t, out.String(), root.String())
	for _, s := range proof.Siblings {
		assert.Contains(t, out.String(), s.String())
	}
}

func TestPrintAudit(t *testing.T) {
	failed := bitset.New(8)
	failed.Set(2).Set(5)
	report := &verifier.AuditReport{FileBlocks: 8, ManifestBlocks: 7, Checked: 7, Failed: failed, Duration: time.Second}

	var out bytes.Buffer
	PrintAudit(report, &out)
	assert.Contains(t, out.String(), "Failed:   2")
	assert.Contains(t, out.String(), "block 2\n")
	assert.Contains(t, out.String(), "block 5\n")
	assert.Contains(t, out.String(), "differs from manifest")
}

func TestPrintRuns(t *testing.T) {
	runs := []meta.RunModel{
		{Mode: meta.ModeAudit, OK: false, Checked: 4, FailedBlocks: datatypes.JSON(`[1,3]`), CreatedAt: time.Now()},
		{Mode: meta.ModeAll, OK: true, Checked: 4, FailedBlocks: datatypes.JSON(`[]`), CreatedAt: time.Now()},
	}
	var out bytes.Buffer
	PrintRuns(runs, &out)
	assert.Contains(t, out.String(), "FAILED")
	assert.Contains(t, out.String(), "[1 3]")
	assert.Contains(t, out.String(), "ok")
}

func TestFmtSize(t *testing.T) {
	assert.Equal(t, "512B", fmtSize(512))
	assert.Equal(t, "1.5KB", fmtSize(1536))
	assert.Equal(t, "1.00MB", fmtSize(1024*1024))
}
