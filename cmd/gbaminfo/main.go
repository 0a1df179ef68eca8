// Command gbaminfo dumps a GBAL or GBAM container's header fields,
// adapted from the teacher's minimal examples/frames tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/handheldhq/gbam"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <file.gbal|file.gbam>\n", filepath.Base(os.Args[0]))
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if len(data) >= 4 && string(data[0:4]) == "GBAM" {
		printVideoInfo(data)
		return
	}

	printAudioInfo(data)
}

func printAudioInfo(data []byte) {
	h, err := gbam.ParseAudioHeader(data)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("container:    audio (GBAL)\n")
	fmt.Printf("mode:         %d\n", h.Mode)
	fmt.Printf("sample rate:  %d Hz\n", h.SampleRate())
	fmt.Printf("channels:     %d\n", h.Channels())
	fmt.Printf("block size:   %d bytes\n", h.BlockSize())
	fmt.Printf("block header: %d bytes\n", h.BlockHeaderSize())
	fmt.Printf("total blocks: %d\n", h.TotalBlocks())
}

func printVideoInfo(data []byte) {
	h, err := gbam.ParseVideoHeader(data)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("container:    video (GBAM)\n")
	fmt.Printf("frame count:  %d\n", h.FrameCount)
	fmt.Printf("version key:  %#04x\n", uint16(h.Key))
	fmt.Printf("dimensions:   %dx%d\n", gbam.FrameWidth, gbam.FrameHeight)
}
