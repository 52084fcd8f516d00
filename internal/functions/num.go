package functions

import (
	"fmt"

	"brisk/internal/object"
	"brisk/internal/runtime"
)

func numFns() []runtime.Embedded {
	return []runtime.Embedded{
		embedded("num::to_str", 1, fnNumToStr),
	}
}

func fnNumToStr(_ *runtime.Runtime, _ *runtime.Context, args []object.Object) (object.Object, error) {
	if err := object.Expect(args[0], object.NUMBER_OBJ); err != nil {
		return nil, fmt.Errorf("num::to_str: %w", err)
	}
	return object.Str(args[0].Inspect()), nil
}
