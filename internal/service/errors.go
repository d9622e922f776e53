package service

import "errors"

var (
	// 会话
	ErrUnauthenticated    = errors.New("请先登录")
	ErrInvalidCredentials = errors.New("用户名或密码错误")

	// 注册
	ErrDuplicateUser    = errors.New("用户名已存在")
	ErrPasswordMismatch = errors.New("密码不一致")
	ErrInvalidInput     = errors.New("用户名和密码不能为空")

	// 生成
	ErrMissingPhoto   = errors.New("请同时上传用户照片和服饰照片")
	ErrDecode         = errors.New("无法读取图像文件")
	ErrNoFaceDetected = errors.New("未检测到人脸，请上传包含清晰人脸的图片")
	ErrBusy           = errors.New("服务繁忙，请稍后重试")
	ErrProcessing     = errors.New("处理过程中出现错误")

	// 反馈
	ErrInvalidFeedback = errors.New("反馈内容必须是 JSON 对象")

	ErrInternalServer = errors.New("internal server error")
)
