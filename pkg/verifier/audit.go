package verifier

import (
	"context"
	"time"

	"blockverity/pkg/core"
	"blockverity/pkg/manifest"
	"blockverity/pkg/metrics"

	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"
)

// AuditReport 是全量审计的结果：所有失败块的集合，而不是第一个
type AuditReport struct {
	// FileBlocks 按当前文件大小算出的块数
	FileBlocks int
	// ManifestBlocks 清单中的摘要条数
	ManifestBlocks int
	// Checked 实际比对过的块数
	Checked int
	// Failed 失败块的位图：内容不匹配、清单缺失条目 (文件变长)、或文件缺块 (文件变短)
	Failed *bitset.BitSet

	Duration time.Duration
}

// OK 所有块都通过，并且块数与清单一致
func (r *AuditReport) OK() bool {
	return r.Failed.None() && r.FileBlocks == r.ManifestBlocks
}

// FailedBlocks 返回升序的失败块号
func (r *AuditReport) FailedBlocks() []int {
	out := make([]int, 0, r.Failed.Count())
	for i, ok := r.Failed.NextSet(0); ok; i, ok = r.Failed.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// LengthMismatch 文件块数与清单条数不同
func (r *AuditReport) LengthMismatch() bool {
	return r.FileBlocks != r.ManifestBlocks
}

// Audit 不短路的全量校验
// 清单只读取一次；I/O 错误仍然立即终止 (无法给出可信结论)。
func (v *Verifier) Audit(ctx context.Context) (*AuditReport, error) {
	start := time.Now()

	digests, err := manifest.Load(v.fs, v.manifestPath)
	if err != nil {
		v.metrics.ObserveRun(metrics.ResultError)
		return nil, err
	}
	size, err := v.src.Size()
	if err != nil {
		v.metrics.ObserveRun(metrics.ResultError)
		return nil, err
	}

	report := &AuditReport{
		FileBlocks:     core.BlockCount(size, v.blockSize),
		ManifestBlocks: len(digests),
	}
	total := max(report.FileBlocks, report.ManifestBlocks)
	report.Failed = bitset.New(uint(total))

	buf := make([]byte, v.blockSize)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i >= report.ManifestBlocks || i >= report.FileBlocks {
			report.Failed.Set(uint(i))
			continue
		}

		ok, err := v.verifyAgainst(digests, i, buf)
		if err != nil {
			v.metrics.ObserveRun(metrics.ResultError)
			return nil, err
		}
		report.Checked++
		if !ok {
			report.Failed.Set(uint(i))
			v.logger.WithField("block", i).Errorf("Block %d verification failed!", i)
		}
	}
	report.Duration = time.Since(start)

	if report.OK() {
		v.metrics.ObserveRun(metrics.ResultVerified)
		v.logger.WithField("blocks", report.Checked).Info("All blocks verified successfully!")
	} else {
		v.metrics.ObserveRun(metrics.ResultMismatch)
		v.logger.WithFields(logrus.Fields{
			"failed":          report.Failed.Count(),
			"file_blocks":     report.FileBlocks,
			"manifest_blocks": report.ManifestBlocks,
		}).Warning("audit found integrity failures")
	}
	return report, nil
}
