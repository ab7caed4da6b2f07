package app

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

var profileSections = []string{"capture", "analyze", "motion", "render", "present"}

// profiler appends one CSV row of section timings per frame.
type profiler struct {
	file   *os.File
	w      *csv.Writer
	frame  int
	start  time.Time
	last   time.Time
	timing []float64
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		logger.Printf("profiler disabled: %v", err)
		return nil
	}
	p := &profiler{file: f, w: csv.NewWriter(f), timing: make([]float64, len(profileSections))}
	header := append([]string{"frame"}, profileSections...)
	_ = p.w.Write(append(header, "total_ms"))
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	p.start = time.Now()
	p.last = p.start
	clear(p.timing)
}

// mark closes the section with index i.
func (p *profiler) mark(i int) {
	if p == nil {
		return
	}
	now := time.Now()
	p.timing[i] = now.Sub(p.last).Seconds() * 1000
	p.last = now
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	row := make([]string, 0, len(p.timing)+2)
	row = append(row, strconv.Itoa(p.frame))
	for _, ms := range p.timing {
		row = append(row, strconv.FormatFloat(ms, 'f', 3, 64))
	}
	row = append(row, strconv.FormatFloat(time.Since(p.start).Seconds()*1000, 'f', 3, 64))
	_ = p.w.Write(row)
	p.frame++
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.w.Flush()
	if err := p.w.Error(); err != nil {
		_ = p.file.Close()
		return fmt.Errorf("flush profile: %w", err)
	}
	return p.file.Close()
}

const (
	sectionCapture = iota
	sectionAnalyze
	sectionMotion
	sectionRender
	sectionPresent
)
