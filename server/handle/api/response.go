package api

type Resp struct {
	ErrNo  Code        `json:"err_no"`
	ErrMsg string      `json:"err_msg"`
	Data   interface{} `json:"data"`
}

func RespOK(data interface{}) Resp {
	return Resp{
		Data: data,
	}
}

func RespErr(errNo Code, errMsg string) Resp {
	return Resp{
		ErrNo:  errNo,
		ErrMsg: errMsg,
	}
}

// RespErrData is RespErr carrying data, such as the state left behind by a
// partially failed chain.
func RespErrData(errNo Code, errMsg string, data interface{}) Resp {
	return Resp{
		ErrNo:  errNo,
		ErrMsg: errMsg,
		Data:   data,
	}
}
