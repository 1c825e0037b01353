/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package batch

type (
	Processor interface {
		Put(interface{})
		TryPut(interface{}) bool

		Run()
		Shutdown()

		Num() int

		AdjustBatchMaxSize(int)
		AdjustBatchMaxWait(duration int)

		flush([]interface{})
	}

	Consumer interface {
		// must be reentrancy
		Consume([]interface{})
	}
)
