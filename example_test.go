package jonx_test

import (
	"fmt"

	"github.com/ajitpratap0/jonx"
)

func ExampleEncodeJSON() {
	data, err := jonx.EncodeJSON([]byte(`[{"price":10,"name":"a"},{"price":5,"name":"b"}]`))
	if err != nil {
		fmt.Println(err)
		return
	}

	res, err := jonx.DecodeFromBytes(data)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Types["price"], res.Types["name"], res.NumRows)

	rows, _ := res.MarshalRows()
	fmt.Println(string(rows))
	// Output:
	// uint8 enum 2
	// [{"price":10,"name":"a"},{"price":5,"name":"b"}]
}
