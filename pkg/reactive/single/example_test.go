package single_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnykmshr/rxflow/pkg/reactive/single"
)

func ExampleSingle_OnErrorReturnItem() {
	v, err := single.Just(1).
		Map(func(int) (int, error) { return 0, errors.New("Hello") }).
		OnErrorReturnItem(2).
		Get(context.Background())

	fmt.Println(v, err)
	// Output: 2 <nil>
}

func ExampleMapTo() {
	single.MapTo(single.Just(1), func(int) (error, error) {
		return errors.New("Hello"), nil
	}).Subscribe(context.Background(),
		func(v error) { fmt.Println("success:", v) },
		func(err error) { fmt.Println("failure:", err) },
	)
	// Output: success: Hello
}
