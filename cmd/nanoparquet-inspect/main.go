// Command nanoparquet-inspect prints a parquet file's schema and, for
// each row group, a per-column null count -- a thin diagnostic wrapper
// around the reader package. Pass -pages to enumerate page headers
// instead of scanning values.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gaborcsardi/nanoparquet/layout"
	"github.com/gaborcsardi/nanoparquet/reader"
)

func main() {
	pages := flag.Bool("pages", false, "enumerate page headers per column chunk instead of scanning values")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: nanoparquet-inspect [-pages] <path>")
	}
	path := flag.Arg(0)

	fr, err := reader.OpenFile(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()

	meta := fr.Metadata()
	columns := fr.Columns()
	fmt.Printf("%s: %d leaf columns, %d row groups, %d rows\n", path, len(columns), len(meta.RowGroups), meta.NumRows)
	for _, col := range columns {
		fmt.Printf("  %-24s %s\n", col.Name, col.Schema.Type)
	}

	if *pages {
		dumpPages(fr)
		return
	}

	var state reader.ScanState
	var result reader.ScanResult
	for rowGroupIdx := 0; ; rowGroupIdx++ {
		ok, err := fr.Scan(&state, &result)
		if err != nil {
			log.Fatalf("scan row group %d: %v", rowGroupIdx, err)
		}
		if !ok {
			break
		}

		fmt.Printf("row group %d: %d rows\n", rowGroupIdx, result.NumRows)
		for _, col := range columns {
			c := result.Columns[col.Name]
			nulls := 0
			for _, d := range c.Defined() {
				if d == 0 {
					nulls++
				}
			}
			fmt.Printf("  %-24s nulls=%d/%d\n", col.Name, nulls, c.Len())
		}
	}
}

// dumpPages walks every column chunk's page stream using speculative
// ReadPageHeader calls, without decompressing or decoding any payload.
func dumpPages(fr *reader.FileReader) {
	meta := fr.Metadata()
	columns := fr.Columns()

	for rgIdx := range meta.RowGroups {
		rg := &meta.RowGroups[rgIdx]
		fmt.Printf("row group %d\n", rgIdx)

		for i, desc := range columns {
			if i >= len(rg.Columns) || rg.Columns[i].MetaData == nil {
				continue
			}
			chunkMeta := rg.Columns[i].MetaData
			cursor := layout.ChunkStartOffset(chunkMeta)
			end := cursor + chunkMeta.TotalCompressedSize

			fmt.Printf("  %s\n", desc.Name)
			for cursor < end {
				hdr, consumed, err := fr.ReadPageHeader(cursor)
				if err != nil {
					fmt.Printf("    error at offset %d: %v\n", cursor, err)
					break
				}
				fmt.Printf("    %-16s offset=%-10d header=%-4d compressed=%-8d uncompressed=%d\n",
					hdr.Type, cursor, consumed, hdr.CompressedPageSize, hdr.UncompressedPageSize)
				cursor += int64(consumed) + int64(hdr.CompressedPageSize)
			}
		}
	}
}
