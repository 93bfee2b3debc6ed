// GoHyphanet - Freenet/Hyphanet FCP Library and Tools
// Copyright (C) 2025 GoHyphanet Contributors
// Licensed under GNU AGPLv3 - see LICENSE file for details
// Source: https://github.com/blubskye/gohyphanet

// hyphkey is a small CLI exercising the corelib facade end to end. It
// has no network and no persistence of its own: everything operates on
// in-memory buckets that only live for this process.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	corelib "github.com/hyphanet/corelib"
	"github.com/hyphanet/corelib/bytestore"
	"github.com/hyphanet/corelib/keys"
)

const version = "0.1.0"

var debugMode bool

func debugLog(format string, args ...interface{}) {
	if debugMode {
		log.Printf("[HYPHKEY] "+format, args...)
	}
}

func main() {
	descriptor := flag.String("compress", "GZIP,BZIP2,LZMA_NEW", "compressor preference order")
	dontCompress := flag.Bool("no-compress", false, "skip compression entirely")
	flag.BoolVar(&debugMode, "debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "hyphkey - Hyphanet key/block codec demo v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: hyphkey <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  insert-chk             Encode stdin as a CHK block, print its insert URI\n")
		fmt.Fprintf(os.Stderr, "  roundtrip-chk          Encode stdin as CHK, immediately decode it, diff the result\n")
		fmt.Fprintf(os.Stderr, "  ksk <keyword>          Derive a KSK from a keyword, print its decryption/routing keys\n")
		fmt.Fprintf(os.Stderr, "  parse-uri <uri>        Parse a URI and print its fields\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch flag.Arg(0) {
	case "insert-chk":
		err = insertCHK(*descriptor, *dontCompress)
	case "roundtrip-chk":
		err = roundtripCHK(*descriptor, *dontCompress)
	case "ksk":
		if flag.NArg() < 2 {
			err = fmt.Errorf("ksk requires a keyword argument")
		} else {
			err = deriveKSK(flag.Arg(1))
		}
	case "parse-uri":
		if flag.NArg() < 2 {
			err = fmt.Errorf("parse-uri requires a uri argument")
		} else {
			err = parseAndPrintURI(flag.Arg(1))
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hyphkey: %v\n", err)
		os.Exit(1)
	}
}

func readStdin() ([]byte, error) {
	bucket := bytestore.NewArrayBucket("stdin", nil)
	w, err := bucket.NewWriter()
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, os.Stdin); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	r, err := bucket.NewReader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func insertCHK(descriptor string, dontCompress bool) error {
	data, err := readStdin()
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	debugLog("read %d bytes from stdin", len(data))

	enc, err := corelib.EncodeCHK(data, corelib.EncodeOptions{
		DontCompress: dontCompress,
		Descriptor:   descriptor,
	})
	if err != nil {
		return fmt.Errorf("encoding CHK: %w", err)
	}
	fmt.Println(enc.URI)
	fmt.Fprintln(os.Stderr, "request uri: "+enc.RequestURI)
	return nil
}

func roundtripCHK(descriptor string, dontCompress bool) error {
	data, err := readStdin()
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	enc, err := corelib.EncodeCHK(data, corelib.EncodeOptions{
		DontCompress: dontCompress,
		Descriptor:   descriptor,
	})
	if err != nil {
		return fmt.Errorf("encoding CHK: %w", err)
	}
	debugLog("encoded %d bytes -> %s (compression=%s)", len(data), enc.URI, enc.Chk.Compression)

	out, err := corelib.DecodeCHK(enc.URI, enc.Block, int64(len(data))+1, true)
	if err != nil {
		return fmt.Errorf("decoding CHK: %w", err)
	}
	if string(out) != string(data) {
		return fmt.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(out), len(data))
	}
	fmt.Println(enc.URI)
	fmt.Fprintln(os.Stderr, "round trip OK")
	return nil
}

func deriveKSK(keyword string) error {
	ksk, err := keys.CreateKsk(keyword)
	if err != nil {
		return fmt.Errorf("deriving KSK: %w", err)
	}
	fmt.Printf("decryption: %x\n", ksk.Decryption)
	fmt.Printf("routing:    %x\n", ksk.Routing)
	return nil
}

func parseAndPrintURI(s string) error {
	u, err := corelib.ParseURI(s)
	if err != nil {
		return fmt.Errorf("parsing uri: %w", err)
	}
	fmt.Printf("type:         %s\n", u.Type)
	fmt.Printf("routing:      %x\n", u.Routing)
	fmt.Printf("decryption:   %x\n", u.Decryption)
	fmt.Printf("extra:        %x\n", u.Extra)
	fmt.Printf("meta-strings: %q\n", u.MetaStrings)
	return nil
}
