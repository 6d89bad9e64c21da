package detections

import (
	"image"
	"runtime"
	"sync"
)

var bufferPool = sync.Pool{
	New: func() interface{} { return []float32(nil) },
}

func getBuffer(size int) []float32 {
	buf := bufferPool.Get().([]float32)
	if cap(buf) < size {
		return make([]float32, size)
	}
	return buf[:size]
}

func putBuffer(buf []float32) {
	bufferPool.Put(buf)
}

// prepareInput fills dst with the image in planar CHW order, channels
// normalized to [0,1]. The image must already be resized to side x side.
// Rows are split across workers; each worker writes a disjoint range.
func prepareInput(pic image.Image, dst []float32, side int) {
	channelSize := side * side

	numWorkers := runtime.NumCPU()
	if numWorkers > side {
		numWorkers = side
	}
	rowsPerWorker := side / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if w == numWorkers-1 {
			endY = side
		}

		go func(startY, endY int) {
			defer wg.Done()
			for y := startY; y < endY; y++ {
				offset := y * side
				for x := 0; x < side; x++ {
					i := offset + x
					r, g, b, _ := pic.At(x, y).RGBA()
					dst[i] = float32(r>>8) / 255.0
					dst[channelSize+i] = float32(g>>8) / 255.0
					dst[channelSize*2+i] = float32(b>>8) / 255.0
				}
			}
		}(startY, endY)
	}

	wg.Wait()
}
