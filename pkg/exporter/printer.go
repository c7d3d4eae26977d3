package exporter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"blockverity/pkg/core"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"
	"blockverity/pkg/meta"
	"blockverity/pkg/types"
	"blockverity/pkg/verifier"
)

func PrintSeal(s *core.Seal, w io.Writer) {
	fmt.Fprintf(w, "Type:       Seal\n")
	fmt.Fprintf(w, "ID:         %s\n", s.ID())
	fmt.Fprintf(w, "Root:       %s\n", s.Root.Hash)
	fmt.Fprintf(w, "Manifest:   %s\n", s.Manifest.Hash)
	fmt.Fprintf(w, "BlockSize:  %d\n", s.BlockSize)
	fmt.Fprintf(w, "Blocks:     %d\n", s.BlockCount)
	fmt.Fprintf(w, "DataSize:   %s\n", fmtSize(s.DataSize))
	fmt.Fprintf(w, "Time:       %s\n", time.Unix(s.CreatedAt, 0).UTC().Format(time.RFC3339))
}

func printManifest(data []byte, w io.Writer) error {
	digests, err := manifest.Decode(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:   Manifest\n")
	fmt.Fprintf(w, "Blocks: %d\n\n", len(digests))
	_, err = w.Write(data)
	return err
}

// PrintProof 每行一个兄弟节点，从叶子层往上
func PrintProof(p *merkle.Proof, leaf, root types.Hash, w io.Writer) {
	fmt.Fprintf(w, "Block:  %d of %d\n", p.Index, p.LeafCount)
	fmt.Fprintf(w, "Leaf:   %s\n", leaf)
	fmt.Fprintf(w, "Root:   %s\n\n", root)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "LEVEL\tSIBLING\n")
	for i, s := range p.Siblings {
		fmt.Fprintf(tw, "%d\t%s\n", i, s)
	}
	tw.Flush()
}

func PrintAudit(r *verifier.AuditReport, w io.Writer) {
	fmt.Fprintf(w, "Blocks:   %d (manifest %d)\n", r.FileBlocks, r.ManifestBlocks)
	fmt.Fprintf(w, "Checked:  %d\n", r.Checked)
	fmt.Fprintf(w, "Failed:   %d\n", r.Failed.Count())
	fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Millisecond))
	if r.LengthMismatch() {
		fmt.Fprintf(w, "Warning:  file block count differs from manifest\n")
	}
	for _, b := range r.FailedBlocks() {
		fmt.Fprintf(w, "  block %d\n", b)
	}
}

func PrintGenerations(gens []meta.GenerationModel, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TIME\tROOT\tBLOCKS\tSIZE\tSEAL\n")
	for _, g := range gens {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			g.CreatedAt.UTC().Format(time.RFC3339), types.Hash(g.Root).Short(), g.BlockCount,
			fmtSize(g.DataSize), orDash(types.Hash(g.SealID).Short()))
	}
	tw.Flush()
}

func PrintRuns(runs []meta.RunModel, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TIME\tMODE\tRESULT\tCHECKED\tFAILED\tROOT\n")
	for i := range runs {
		r := &runs[i]
		result := "ok"
		if !r.OK {
			result = "FAILED"
		}
		failed, err := meta.FailedBlocksOf(r)
		failedText := fmt.Sprint(failed)
		if err != nil {
			failedText = "?"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.UTC().Format(time.RFC3339), r.Mode, result, r.Checked, failedText,
			orDash(types.Hash(r.Root).Short()))
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fmtSize(s int64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	}
	return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
}
