package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxel-world/pkg/blockdata"
)

func main() {
	var (
		src  = flag.String("src", "", "go-getter source of a block pack (file, http, git::, s3:: ...)")
		out  = flag.String("o", "./assets/blocks", "output dir path")
		name = flag.String("name", "blocks.yaml", "pack file name inside the fetched tree")
	)
	flag.Parse()

	if *src == "" {
		log.Fatal("source required")
	}
	if *out == "" {
		log.Fatal("output dir path required")
	}

	if err := os.RemoveAll(*out); err != nil {
		log.Fatal(err)
	}

	log.Default().Printf("start downloading block pack %s", *src)
	if err := get.Get(*out, *src); err != nil {
		log.Fatalf("download block pack: %v", err)
	}

	path := filepath.Join(*out, *name)
	pack, err := blockdata.LoadFile(path)
	if err != nil {
		log.Fatalf("validate block pack: %v", err)
	}

	log.Default().Printf("done downloading block pack %s: %s", path, summary(pack))
}

func summary(p *blockdata.Pack) string {
	lights, transparent := 0, 0
	for _, b := range p.Blocks {
		if b.Emission > 0 {
			lights++
		}
		if b.Transparent {
			transparent++
		}
	}
	return fmt.Sprintf("%q, %d blocks, %d transparent, %d light sources", p.Name, len(p.Blocks), transparent, lights)
}
