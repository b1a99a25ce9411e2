package stepsheet_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/stepsheet"
	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/dsl"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func salesAndReturns() []domain.Dataset {
	return []domain.Dataset{
		domain.NewDataset(domain.NewColumn("amount", domain.DtypeInt, int64(10), int64(20))),
		domain.NewDataset(domain.NewColumn("amount", domain.DtypeInt, int64(-5))),
	}
}

// ExampleNew stacks two datasets and prints the generated script.
func ExampleNew() {
	eng, err := stepsheet.New(salesAndReturns(), []string{"sales", "returns"})
	if err != nil {
		log.Fatal(err)
	}

	_, err = eng.Apply(context.Background(), steps.KindConcat, map[string]any{
		"join":           steps.JoinOuter,
		"resetIndex":     true,
		"datasetIndexes": []int{0, 1},
	})
	if err != nil {
		log.Fatal(err)
	}

	code, err := eng.Code()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(code)
	// Output:
	// import pandas as pd
	//
	// df3 = pd.concat([sales, returns], join='outer', ignore_index=True)
}

// ExampleEngine_Replay replays an analysis written with the dsl package.
func ExampleEngine_Replay() {
	eng, err := stepsheet.New(salesAndReturns(), []string{"sales", "returns"})
	if err != nil {
		log.Fatal(err)
	}

	analysis := dsl.New("stacked").
		Concat(steps.JoinInner, false, 0, 1).
		MustBuild()
	if err := eng.Replay(context.Background(), analysis); err != nil {
		log.Fatal(err)
	}

	state := eng.State()
	fmt.Println(state.Names)
	fmt.Println(state.Datasets[2].Index)
	// Output:
	// [sales returns df3]
	// [0 1 0]
}
